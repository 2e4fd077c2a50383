// Package seed loads the starter categories and tasks.
package seed

import (
	"context"
	_ "embed"
	"fmt"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/gurkanbulca/taskboard/internal/models"
	"github.com/gurkanbulca/taskboard/internal/service"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

type Fixtures struct {
	Categories []CategoryFixture `yaml:"categories"`
	Tasks      []TaskFixture     `yaml:"tasks"`
}

type CategoryFixture struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
	Icon  string `yaml:"icon"`
}

// TaskFixture names its category and gives the due date relative to the
// day it is loaded.
type TaskFixture struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
	Priority    string `yaml:"priority"`
	DueInDays   *int   `yaml:"dueInDays"`
	Completed   bool   `yaml:"completed"`
}

func Parse(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &f, nil
}

// Default returns the embedded starter set.
func Default() (*Fixtures, error) {
	return Parse(defaultFixtures)
}

// Result counts what Load wrote.
type Result struct {
	Categories int
	Tasks      int
	Skipped    bool
}

// Load writes f through gw. It does nothing when any category already
// exists, so restarting a seeded server keeps the data as it is.
func Load(ctx context.Context, gw *service.Gateway, f *Fixtures) (*Result, error) {
	existing, err := gw.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("check existing categories: %w", err)
	}
	if len(existing) > 0 {
		log.WithField("categories", len(existing)).Info("storage already populated, skipping seed")
		return &Result{Skipped: true}, nil
	}

	res := &Result{}
	ids := make(map[string]int, len(f.Categories))
	for _, c := range f.Categories {
		c := c
		created, err := gw.CreateCategory(ctx, service.CategoryInput{Name: &c.Name, Color: &c.Color, Icon: &c.Icon})
		if err != nil {
			return res, fmt.Errorf("seed category %q: %w", c.Name, err)
		}
		ids[c.Name] = created.ID
		res.Categories++
	}

	today := models.Today(gw.Now())
	inputs := make([]service.TaskInput, 0, len(f.Tasks))
	for _, t := range f.Tasks {
		id, ok := ids[t.Category]
		if !ok {
			return res, fmt.Errorf("seed task %q: unknown category %q", t.Title, t.Category)
		}
		t := t
		in := service.TaskInput{
			Title:       &t.Title,
			Description: &t.Description,
			CategoryID:  id,
		}
		if t.Priority != "" {
			in.Priority = &t.Priority
		}
		if t.DueInDays != nil {
			due := today.AddDate(0, 0, *t.DueInDays).Format(models.DateLayout)
			in.DueDate = &due
		}
		if t.Completed {
			in.Completed = &t.Completed
		}
		inputs = append(inputs, in)
	}

	if len(inputs) > 0 {
		batch, err := gw.ImportTasks(ctx, inputs)
		if err != nil {
			return res, fmt.Errorf("seed tasks: %w", err)
		}
		res.Tasks = len(batch.Created)
		for _, failure := range batch.Failures {
			log.WithError(failure.Err).WithField("index", failure.Index).Warn("seed task rejected")
		}
	}

	log.WithFields(log.Fields{"categories": res.Categories, "tasks": res.Tasks}).Info("seed data loaded")
	return res, nil
}
