package repository

import (
	"context"

	"github.com/nsrz/intranet/internal/domain"
	"github.com/nsrz/intranet/internal/persistence"
)

// NewsRepository persists news articles.
type NewsRepository interface {
	Create(ctx context.Context, news *domain.News) error
	Update(ctx context.Context, news *domain.News) error
	Delete(ctx context.Context, id int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*domain.News, error)
	List(ctx context.Context, publishedOnly bool, limit int) ([]domain.News, error)
	SetPublished(ctx context.Context, id int64, published bool) (*domain.News, error)
}

type newsRepository struct {
	db persistence.Querier
}

func NewNewsRepository(db persistence.Querier) NewsRepository {
	return &newsRepository{db: db}
}

const newsColumns = `id, title, content, published, image, author_id, created_at, publish_date`

func scanNews(row interface{ Scan(dest ...any) error }) (*domain.News, error) {
	var n domain.News
	if err := row.Scan(
		&n.ID,
		&n.Title,
		&n.Content,
		&n.Published,
		&n.Image,
		&n.AuthorID,
		&n.CreatedAt,
		&n.PublishDate,
	); err != nil {
		return nil, err
	}
	return &n, nil
}

// Create inserts the article; a published article gets its publish date from the database clock.
func (r *newsRepository) Create(ctx context.Context, news *domain.News) error {
	query := `
        INSERT INTO news (title, content, published, image, author_id, publish_date)
        VALUES ($1,$2,$3,$4,$5, CASE WHEN $3 THEN NOW() END)
        RETURNING ` + newsColumns
	created, err := scanNews(persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		news.Title,
		news.Content,
		news.Published,
		news.Image,
		news.AuthorID,
	))
	if err != nil {
		return err
	}
	*news = *created
	return nil
}

func (r *newsRepository) Update(ctx context.Context, news *domain.News) error {
	query := `
        UPDATE news SET title=$1, content=$2, image=$3
        WHERE id=$4
        RETURNING ` + newsColumns
	updated, err := scanNews(persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		news.Title,
		news.Content,
		news.Image,
		news.ID,
	))
	if err != nil {
		return err
	}
	*news = *updated
	return nil
}

func (r *newsRepository) Delete(ctx context.Context, id int64) (bool, error) {
	cmd, err := persistence.Conn(ctx, r.db).Exec(ctx, `DELETE FROM news WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *newsRepository) GetByID(ctx context.Context, id int64) (*domain.News, error) {
	return scanNews(persistence.Conn(ctx, r.db).QueryRow(ctx, `SELECT `+newsColumns+` FROM news WHERE id=$1`, id))
}

// List returns newest first. limit <= 0 means no limit.
func (r *newsRepository) List(ctx context.Context, publishedOnly bool, limit int) ([]domain.News, error) {
	query := `
        SELECT ` + newsColumns + `
        FROM news
        WHERE (NOT $1 OR published)
        ORDER BY COALESCE(publish_date, created_at) DESC, id DESC
        LIMIT NULLIF($2, 0)`
	if limit < 0 {
		limit = 0
	}
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, publishedOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.News, 0)
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *n)
	}
	return result, rows.Err()
}

// SetPublished flips the flag. Publishing stamps publish_date, unpublishing clears it.
func (r *newsRepository) SetPublished(ctx context.Context, id int64, published bool) (*domain.News, error) {
	query := `
        UPDATE news
        SET published=$1, publish_date = CASE WHEN $1 THEN NOW() END
        WHERE id=$2
        RETURNING ` + newsColumns
	return scanNews(persistence.Conn(ctx, r.db).QueryRow(ctx, query, published, id))
}
