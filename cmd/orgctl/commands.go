package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/orgchartd/orgchart-service/internal/app"
	"github.com/orgchartd/orgchart-service/internal/domain"
	"github.com/orgchartd/orgchart-service/internal/store"
)

// opener wires a runtime; the returned func releases it.
type opener func(ctx context.Context) (*app.Runtime, func(), error)

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "orgctl",
		Short:         "Inspect and edit the org chart",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `orgctl operates on the same org chart slot as the API server.

The storage backend is selected with STORAGE_BACKEND (file, redis, postgres)
and the slot with STORAGE_SLOT.`,
	}
	root.AddCommand(
		newTreeCmd(open),
		newListCmd(open),
		newPathCmd(open),
		newAddDepartmentCmd(open),
		newAddActivityCmd(open),
		newExportCmd(open),
	)
	return root
}

func withStore(cmd *cobra.Command, open opener, fn func(*store.Store) error) error {
	rt, release, err := open(cmd.Context())
	if err != nil {
		return err
	}
	defer release()
	return fn(rt.Store)
}

func newTreeCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the hierarchy with activities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, open, func(s *store.Store) error {
				printTree(cmd.OutOrStdout(), s.Departments(), 0)
				return nil
			})
		},
	}
}

func printTree(w io.Writer, depts []*domain.Department, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, d := range depts {
		fmt.Fprintf(w, "%s%s [%s] %s\n", indent, d.Name, d.Type.Label(), d.ID)
		for _, a := range d.Activities {
			fmt.Fprintf(w, "%s  - %s %s\n", indent, a.Name, a.ID)
		}
		printTree(w, d.Children, depth+1)
	}
}

func newListCmd(open opener) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List departments depth-first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filter domain.DepartmentType
			if kind != "" {
				t, ok := domain.ParseDepartmentType(kind)
				if !ok {
					return fmt.Errorf("unknown department type %q", kind)
				}
				filter = t
			}
			return withStore(cmd, open, func(s *store.Store) error {
				entries := s.ListAllDepartments()
				if filter != "" {
					entries = s.ListDepartmentsByType(filter)
				}
				for _, e := range entries {
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\n", e.Depth, e.Type, e.ID, e.Name)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&kind, "type", "t", "", "only list this kind (CEO, DIRECTORATE, MANAGEMENT, SECTOR)")
	return cmd
}

func newPathCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "path <department-id>",
		Short: "Print the chain from the CEO down to a department",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, open, func(s *store.Store) error {
				path := s.FindPathToDepartment(args[0])
				if len(path) == 0 {
					return fmt.Errorf("%w: %s", store.ErrDepartmentNotFound, args[0])
				}
				names := make([]string, 0, len(path))
				for _, d := range path {
					names = append(names, d.Name)
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, " > "))
				return nil
			})
		},
	}
}

func newAddDepartmentCmd(open opener) *cobra.Command {
	var name, kind, parent, description string
	cmd := &cobra.Command{
		Use:   "add-department",
		Short: "Add a directorate, management or sector",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("--name is required")
			}
			t, ok := domain.ParseDepartmentType(kind)
			if !ok {
				return fmt.Errorf("unknown department type %q", kind)
			}
			return withStore(cmd, open, func(s *store.Store) error {
				id, err := s.AddDepartment(cmd.Context(), store.DepartmentInput{
					Name:        name,
					Description: description,
					Type:        t,
				}, parent)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "department name")
	cmd.Flags().StringVarP(&kind, "type", "t", string(domain.DepartmentTypeDirectorate), "department kind")
	cmd.Flags().StringVar(&parent, "parent", "", "parent department id (directorates default to the CEO)")
	cmd.Flags().StringVar(&description, "description", "", "optional description")
	return cmd
}

func newAddActivityCmd(open opener) *cobra.Command {
	var department, name, description, flowchart string
	cmd := &cobra.Command{
		Use:   "add-activity",
		Short: "Attach an activity to a department",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if department == "" || strings.TrimSpace(name) == "" {
				return fmt.Errorf("--department and --name are required")
			}
			return withStore(cmd, open, func(s *store.Store) error {
				id, err := s.AddActivity(cmd.Context(), department, store.ActivityInput{
					Name:         name,
					Description:  description,
					FlowchartURL: flowchart,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&department, "department", "", "owning department id")
	cmd.Flags().StringVar(&name, "name", "", "activity name")
	cmd.Flags().StringVar(&description, "description", "", "optional description")
	cmd.Flags().StringVar(&flowchart, "flowchart-url", "", "optional flowchart image URL")
	return cmd
}

func newExportCmd(open opener) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole org chart as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, open, func(s *store.Store) error {
				if out == "" || out == "-" {
					return s.Export(cmd.OutOrStdout())
				}
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				if err := s.Export(f); err != nil {
					f.Close()
					return err
				}
				return f.Close()
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}
