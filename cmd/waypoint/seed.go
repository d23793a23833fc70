package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hyperengineering/waypoint/internal/catalog"
	"github.com/hyperengineering/waypoint/internal/config"
	"github.com/hyperengineering/waypoint/internal/types"
)

var seedDBPath string

var seedCmd = &cobra.Command{
	Use:   "seed <workflows.yaml>",
	Short: "Load workflow definitions into the catalog",
	Long:  "Reads a YAML file of workflow definitions and upserts them into the catalog database without running the server.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedDBPath, "db", "",
		"Catalog database path (overrides config and WAYPOINT_DB_PATH)")
}

// seedFile is the YAML shape accepted by the seed command.
type seedFile struct {
	Workflows []seedWorkflow `yaml:"workflows"`
}

type seedWorkflow struct {
	ID            string            `yaml:"id"`
	Title         string            `yaml:"title"`
	Description   string            `yaml:"description"`
	Category      string            `yaml:"category"`
	Complexity    string            `yaml:"complexity"`
	UsageCount    int64             `yaml:"usage_count"`
	AverageRating float64           `yaml:"average_rating"`
	ReviewCount   int64             `yaml:"review_count"`
	NodeCount     int               `yaml:"node_count"`
	Tags          []string          `yaml:"tags"`
	Requirements  []seedRequirement `yaml:"requirements"`
}

type seedRequirement struct {
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	Difficulty  string `yaml:"difficulty"`
	DocsURL     string `yaml:"docs_url"`
}

func (s seedWorkflow) workflow() types.Workflow {
	w := types.Workflow{
		ID:            s.ID,
		Title:         s.Title,
		Description:   s.Description,
		Category:      s.Category,
		Complexity:    types.Complexity(s.Complexity),
		UsageCount:    s.UsageCount,
		AverageRating: s.AverageRating,
		ReviewCount:   s.ReviewCount,
		NodeCount:     s.NodeCount,
		Tags:          s.Tags,
	}
	for _, req := range s.Requirements {
		w.Requirements = append(w.Requirements, types.Requirement{
			Type:        req.Type,
			Description: req.Description,
			Difficulty:  req.Difficulty,
			DocsURL:     req.DocsURL,
		})
	}
	return w
}

func runSeed(cmd *cobra.Command, args []string) error {
	dbPath := seedDBPath
	if dbPath == "" {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		dbPath = cfg.Database.Path
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read workflows file: %w", err)
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse workflows file: %w", err)
	}
	if len(file.Workflows) == 0 {
		return fmt.Errorf("no workflows found in %s", args[0])
	}

	cat, err := catalog.NewSQLiteCatalog(dbPath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer cat.Close()

	for i, sw := range file.Workflows {
		if sw.Title == "" {
			return fmt.Errorf("workflow %d: title is required", i)
		}
		if err := cat.Put(cmd.Context(), sw.workflow()); err != nil {
			return fmt.Errorf("store workflow %q: %w", sw.Title, err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d workflows into %s\n", len(file.Workflows), dbPath)
	return nil
}
