package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nsrz/intranet/internal/domain"
	"github.com/nsrz/intranet/internal/orgtree"
	"github.com/nsrz/intranet/internal/service"
)

// seedFile is the YAML layout accepted by `intranetctl seed`. Departments refer to their
// parent by code_zup; positions and employees refer to departments the same way.
type seedFile struct {
	Departments []seedDepartment `yaml:"departments"`
	Positions   []seedPosition   `yaml:"positions"`
	Employees   []seedEmployee   `yaml:"employees"`
}

type seedDepartment struct {
	CodeZup      string `yaml:"code_zup"`
	Name         string `yaml:"name"`
	Fullname     string `yaml:"fullname"`
	Organization string `yaml:"organization"`
	Parent       string `yaml:"parent"`
}

type seedPosition struct {
	Name       string `yaml:"name"`
	Department string `yaml:"department"`
}

type seedEmployee struct {
	Lastname      string  `yaml:"lastname"`
	Firstname     string  `yaml:"firstname"`
	Middlename    string  `yaml:"middlename"`
	Department    string  `yaml:"department"`
	Position      string  `yaml:"position"`
	BirthDate     string  `yaml:"birth_date"`
	HireDate      string  `yaml:"hire_date"`
	DismissalDate *string `yaml:"dismissal_date"`
	Phone         *string `yaml:"phone"`
	Email         *string `yaml:"email"`
}

type seedResult struct {
	Departments int
	Positions   int
	Employees   int
}

func newSeedCmd(rt *runtime) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load departments, positions and employees from a YAML file in one transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			seed, err := parseSeed(f)
			if err != nil {
				return err
			}
			if seed.Departments, err = orderDepartments(seed.Departments); err != nil {
				return err
			}
			svc, err := rt.openServices(cmd.Context())
			if err != nil {
				return err
			}

			var res seedResult
			err = svc.tx.WithinTx(cmd.Context(), func(ctx context.Context) error {
				res, err = applySeed(ctx, svc, seed, rt.cfg.App.OrganizationName)
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "%s %d departments, %d positions, %d employees\n",
				color.New(color.FgHiGreen).Sprint("seeded"), res.Departments, res.Positions, res.Employees)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "seed.yaml", "path to the seed file")
	return cmd
}

func parseSeed(r io.Reader) (*seedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var seed seedFile
	if err := dec.Decode(&seed); err != nil {
		if err == io.EOF {
			return &seed, nil
		}
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &seed, nil
}

// orderDepartments returns the departments parents-first. Unknown parent codes,
// duplicate codes and cycles are rejected before anything touches the database.
func orderDepartments(deps []seedDepartment) ([]seedDepartment, error) {
	ids := make(map[string]int64, len(deps))
	for i, d := range deps {
		code := strings.TrimSpace(d.CodeZup)
		if code == "" {
			return nil, fmt.Errorf("department %q: code_zup is required", d.Name)
		}
		if _, dup := ids[code]; dup {
			return nil, fmt.Errorf("department code %q listed twice", code)
		}
		ids[code] = int64(i + 1)
	}

	nodes := make([]orgtree.Node, 0, len(deps))
	for i, d := range deps {
		node := orgtree.Node{ID: int64(i + 1), Name: d.Name}
		if parent := strings.TrimSpace(d.Parent); parent != "" {
			pid, ok := ids[parent]
			if !ok {
				return nil, fmt.Errorf("department %q: unknown parent %q", d.CodeZup, parent)
			}
			node.ParentID = &pid
		}
		nodes = append(nodes, node)
	}

	levels := orgtree.Levels(nodes)
	if len(levels) != len(deps) {
		return nil, fmt.Errorf("departments form a cycle: %d of %d are unreachable from a root", len(deps)-len(levels), len(deps))
	}
	ordered := make([]seedDepartment, 0, len(deps))
	for _, e := range levels {
		ordered = append(ordered, deps[e.ID-1])
	}
	return ordered, nil
}

// applySeed expects departments already ordered parents-first.
func applySeed(ctx context.Context, svc *services, seed *seedFile, defaultOrg string) (seedResult, error) {
	var res seedResult
	deptIDs := map[string]int64{}
	for _, d := range seed.Departments {
		org := d.Organization
		if org == "" {
			org = defaultOrg
		}
		in := service.DepartmentCreateInput{Name: d.Name, Fullname: d.Fullname, CodeZup: d.CodeZup, Organization: org}
		if d.Parent != "" {
			parent := deptIDs[strings.TrimSpace(d.Parent)]
			in.ParentID = &parent
		}
		if in.Fullname == "" {
			in.Fullname = d.Name
		}
		created, err := svc.departments.Create(ctx, in)
		if err != nil {
			return res, fmt.Errorf("department %q: %w", d.CodeZup, err)
		}
		deptIDs[strings.TrimSpace(d.CodeZup)] = created.ID
		res.Departments++
	}

	lookupDept := func(code string) (int64, error) {
		id, ok := deptIDs[strings.TrimSpace(code)]
		if !ok {
			return 0, fmt.Errorf("unknown department %q", code)
		}
		return id, nil
	}

	positionIDs := map[string]int64{}
	for _, p := range seed.Positions {
		deptID, err := lookupDept(p.Department)
		if err != nil {
			return res, fmt.Errorf("position %q: %w", p.Name, err)
		}
		created, err := svc.positions.Create(ctx, p.Name, deptID)
		if err != nil {
			return res, fmt.Errorf("position %q: %w", p.Name, err)
		}
		positionIDs[positionKey(p.Department, p.Name)] = created.ID
		res.Positions++
	}

	for _, e := range seed.Employees {
		in, err := employeeInput(e, lookupDept, positionIDs)
		if err != nil {
			return res, fmt.Errorf("employee %s %s: %w", e.Lastname, e.Firstname, err)
		}
		if _, err := svc.employees.Create(ctx, in); err != nil {
			return res, fmt.Errorf("employee %s %s: %w", e.Lastname, e.Firstname, err)
		}
		res.Employees++
	}
	return res, nil
}

func positionKey(department, name string) string {
	return strings.TrimSpace(department) + "/" + strings.ToLower(strings.TrimSpace(name))
}

func employeeInput(e seedEmployee, lookupDept func(string) (int64, error), positions map[string]int64) (service.EmployeeCreateInput, error) {
	deptID, err := lookupDept(e.Department)
	if err != nil {
		return service.EmployeeCreateInput{}, err
	}
	posID, ok := positions[positionKey(e.Department, e.Position)]
	if !ok {
		return service.EmployeeCreateInput{}, fmt.Errorf("unknown position %q in department %q", e.Position, e.Department)
	}
	birth, err := time.Parse(domain.DateLayout, e.BirthDate)
	if err != nil {
		return service.EmployeeCreateInput{}, fmt.Errorf("birth_date: %w", err)
	}
	hire, err := time.Parse(domain.DateLayout, e.HireDate)
	if err != nil {
		return service.EmployeeCreateInput{}, fmt.Errorf("hire_date: %w", err)
	}
	in := service.EmployeeCreateInput{
		Lastname:     e.Lastname,
		Firstname:    e.Firstname,
		Middlename:   e.Middlename,
		DepartmentID: deptID,
		PositionID:   posID,
		BirthDate:    birth,
		HireDate:     hire,
		Phone:        e.Phone,
		Email:        e.Email,
	}
	if e.DismissalDate != nil {
		d, err := time.Parse(domain.DateLayout, *e.DismissalDate)
		if err != nil {
			return service.EmployeeCreateInput{}, fmt.Errorf("dismissal_date: %w", err)
		}
		in.DismissalDate = &d
	}
	return in, nil
}
