// cmd/tools/metadata-tool/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"nalk-analytics/internal/models"
	"nalk-analytics/pkg/registry"
)

const defaultPath = "configs/deals_metadata.json"

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	setCmd := flag.NewFlagSet("set", flag.ExitOnError)

	validatePath := validateCmd.String("path", defaultPath, "Path to the field metadata file")
	listPath := listCmd.String("path", defaultPath, "Path to the field metadata file")

	setPath := setCmd.String("path", defaultPath, "Path to the field metadata file")
	name := setCmd.String("name", "", "Column name (e.g., deal_lost_reason_name)")
	description := setCmd.String("description", "", "Description shown to the model")

	if len(os.Args) < 2 {
		help(os.Stdout)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validateMetadata(*validatePath); err != nil {
			fmt.Printf("Metadata validation failed: %v\n", err)
			os.Exit(1)
		}

	case "list":
		listCmd.Parse(os.Args[2:])
		if err := listMetadata(*listPath); err != nil {
			fmt.Printf("Error listing metadata: %v\n", err)
			os.Exit(1)
		}

	case "set":
		setCmd.Parse(os.Args[2:])
		if *name == "" || *description == "" {
			fmt.Println("Error: name and description are required for set.")
			setCmd.Usage()
			os.Exit(1)
		}
		if err := setField(*setPath, *name, *description); err != nil {
			fmt.Printf("Error updating metadata: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated field %s\n", *name)

	case "help":
		fallthrough
	default:
		help(os.Stdout)
	}
}

func validateMetadata(path string) error {
	reg, err := registry.LoadFieldMetadata(path)
	if err != nil {
		return fmt.Errorf("failed to load metadata: %w", err)
	}

	if problems := reg.Validate(models.DealColumns); len(problems) > 0 {
		return fmt.Errorf("%d problem(s):\n  %s", len(problems), strings.Join(problems, "\n  "))
	}

	fmt.Printf("Metadata validation passed. Found %d fields.\n", len(reg.Fields))
	return nil
}

func listMetadata(path string) error {
	reg, err := registry.LoadFieldMetadata(path)
	if err != nil {
		return fmt.Errorf("failed to load metadata: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tDESCRIPTION")
	for _, f := range reg.Fields {
		fmt.Fprintf(w, "%s\t%s\n", f.Name, f.Description)
	}
	return w.Flush()
}

// setField adds the field or replaces its description.
func setField(path, name, description string) error {
	if !isColumn(name) {
		return fmt.Errorf("%q is not a column of the deals table", name)
	}

	reg, err := registry.LoadFieldMetadata(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load metadata: %w", err)
		}
		reg = &registry.FieldRegistry{Version: "1.0.0", Table: "deals_normalized"}
	}

	if f, ok := reg.Lookup(name); ok && f.Description == description {
		return nil
	}

	found := false
	for i := range reg.Fields {
		if reg.Fields[i].Name == name {
			reg.Fields[i].Description = description
			found = true
			break
		}
	}
	if !found {
		reg.Fields = append(reg.Fields, registry.FieldDescriptor{Name: name, Description: description})
	}

	reg.LastUpdated = time.Now().Format(time.RFC3339)
	return saveMetadata(reg, path)
}

func isColumn(name string) bool {
	for _, c := range models.DealColumns {
		if c == name {
			return true
		}
	}
	return false
}

func saveMetadata(reg *registry.FieldRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	return nil
}

func help(w io.Writer) {
	fmt.Fprint(w, `
Usage: metadata-tool <command> [flags]

Commands:
  validate  Check the field metadata file against the deals table columns
  list      Print every field and its description
  set       Add a field or replace its description
  help      Show this help message

Examples:
  metadata-tool validate -path configs/deals_metadata.json
  metadata-tool list
  metadata-tool set -name deal_lost_reason_name -description "Motivo informado para a perda do negócio"

Use 'metadata-tool <command> -h' for more information about a command.
`)
}
