package sqlstore

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	taskschema "github.com/gurkanbulca/taskboard/internal/schema"
)

// IDColumn is the primary key of every table.
const IDColumn = "Id"

var (
	// TasksColumns holds the columns for the "tasks" table.
	TasksColumns = []*schema.Column{
		{Name: IDColumn, Type: field.TypeInt, Increment: true},
		{Name: "title_c", Type: field.TypeString},
		{Name: "description_c", Type: field.TypeString, Size: 2147483647, Nullable: true},
		{Name: "category_id_c", Type: field.TypeInt, Nullable: true},
		{Name: "priority_c", Type: field.TypeString, Nullable: true},
		{Name: "due_date_c", Type: field.TypeString, Nullable: true},
		{Name: "completed_c", Type: field.TypeBool, Nullable: true},
		{Name: "completed_at_c", Type: field.TypeString, Nullable: true},
		{Name: "created_at_c", Type: field.TypeString, Nullable: true},
	}
	// TasksTable holds the schema information for the "tasks" table.
	TasksTable = &schema.Table{
		Name:       taskschema.TasksTable,
		Columns:    TasksColumns,
		PrimaryKey: []*schema.Column{TasksColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "task_category_id_c",
				Unique:  false,
				Columns: []*schema.Column{TasksColumns[3]},
			},
		},
	}
	// CategoriesColumns holds the columns for the "categories" table.
	CategoriesColumns = []*schema.Column{
		{Name: IDColumn, Type: field.TypeInt, Increment: true},
		{Name: "Name", Type: field.TypeString},
		{Name: "color_c", Type: field.TypeString, Nullable: true},
		{Name: "icon_c", Type: field.TypeString, Nullable: true},
		{Name: "task_count_c", Type: field.TypeInt, Nullable: true},
	}
	// CategoriesTable holds the schema information for the "categories" table.
	CategoriesTable = &schema.Table{
		Name:       taskschema.CategoriesTable,
		Columns:    CategoriesColumns,
		PrimaryKey: []*schema.Column{CategoriesColumns[0]},
	}
	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		CategoriesTable,
		TasksTable,
	}
)

// Migrate creates or alters the tables to match Tables. Category deletion
// does not cascade, so no foreign key links the two tables.
func Migrate(ctx context.Context, drv dialect.Driver, opts ...schema.MigrateOption) error {
	opts = append([]schema.MigrateOption{
		schema.WithDropIndex(true),
		schema.WithDropColumn(true),
		schema.WithForeignKeys(false),
	}, opts...)
	m, err := schema.NewMigrate(drv, opts...)
	if err != nil {
		return fmt.Errorf("create migrate: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
