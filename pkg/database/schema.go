package database

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table names
const (
	LeadsTable         = "leads"
	PropertiesTable    = "properties"
	DealsTable         = "deals"
	TasksTable         = "tasks"
	ActivitiesTable    = "activities"
	NotificationsTable = "notifications"
	MatchesTable       = "lead_property_matches"
)

// textSize makes ent declare an unbounded text column.
const textSize = 2147483647

var (
	// LeadsColumns holds the columns for the "leads" table.
	LeadsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "first_name", Type: field.TypeString, Size: 100},
		{Name: "last_name", Type: field.TypeString, Size: 100, Default: ""},
		{Name: "email", Type: field.TypeString, Size: 255, Default: ""},
		{Name: "phone", Type: field.TypeString, Size: 32, Default: ""},
		{Name: "source", Type: field.TypeString, Size: 50, Default: ""},
		{Name: "status", Type: field.TypeString, Size: 50, Default: "new"},
		{Name: "score", Type: field.TypeInt, Default: 0},
		{Name: "budget", Type: field.TypeFloat64, Default: 0},
		{Name: "budget_max", Type: field.TypeFloat64, Default: 0},
		{Name: "preferred_locations", Type: field.TypeJSON, Nullable: true},
		{Name: "property_types", Type: field.TypeJSON, Nullable: true},
		{Name: "notes", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "assigned_to", Type: field.TypeString, Size: 64, Default: ""},
		{Name: "created_by", Type: field.TypeString, Size: 64, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// LeadsTableSchema holds the schema information for the "leads" table.
	LeadsTableSchema = &schema.Table{
		Name:       LeadsTable,
		Columns:    LeadsColumns,
		PrimaryKey: []*schema.Column{LeadsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "lead_status", Columns: []*schema.Column{column(LeadsColumns, "status")}},
			{Name: "lead_assigned_to", Columns: []*schema.Column{column(LeadsColumns, "assigned_to")}},
			{Name: "lead_created_at", Columns: []*schema.Column{column(LeadsColumns, "created_at")}},
		},
	}

	// PropertiesColumns holds the columns for the "properties" table.
	PropertiesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "title", Type: field.TypeString, Size: 200},
		{Name: "address", Type: field.TypeString, Size: 255},
		{Name: "city", Type: field.TypeString, Size: 100},
		{Name: "state", Type: field.TypeString, Size: 50, Default: ""},
		{Name: "zip_code", Type: field.TypeString, Size: 20, Default: ""},
		{Name: "property_type", Type: field.TypeString, Size: 50},
		{Name: "status", Type: field.TypeString, Size: 50, Default: "available"},
		{Name: "price", Type: field.TypeFloat64, Default: 0},
		{Name: "bedrooms", Type: field.TypeInt, Default: 0},
		{Name: "bathrooms", Type: field.TypeFloat64, Default: 0},
		{Name: "square_feet", Type: field.TypeInt, Default: 0},
		{Name: "description", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "images", Type: field.TypeJSON, Nullable: true},
		{Name: "listing_agent", Type: field.TypeString, Size: 64, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// PropertiesTableSchema holds the schema information for the "properties" table.
	PropertiesTableSchema = &schema.Table{
		Name:       PropertiesTable,
		Columns:    PropertiesColumns,
		PrimaryKey: []*schema.Column{PropertiesColumns[0]},
		Indexes: []*schema.Index{
			{Name: "property_status", Columns: []*schema.Column{column(PropertiesColumns, "status")}},
			{Name: "property_city", Columns: []*schema.Column{column(PropertiesColumns, "city")}},
		},
	}

	// DealsColumns holds the columns for the "deals" table.
	DealsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "lead_id", Type: field.TypeString},
		{Name: "property_id", Type: field.TypeString},
		{Name: "status", Type: field.TypeString, Size: 50, Default: "offer"},
		{Name: "deal_value", Type: field.TypeFloat64, Default: 0},
		{Name: "offer_amount", Type: field.TypeFloat64, Default: 0},
		{Name: "commission", Type: field.TypeFloat64, Default: 0},
		{Name: "expected_close_date", Type: field.TypeTime, Nullable: true},
		{Name: "notes", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "assigned_to", Type: field.TypeString, Size: 64, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// DealsTableSchema holds the schema information for the "deals" table.
	DealsTableSchema = &schema.Table{
		Name:       DealsTable,
		Columns:    DealsColumns,
		PrimaryKey: []*schema.Column{DealsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "deals_leads_deals",
				Columns:    []*schema.Column{column(DealsColumns, "lead_id")},
				RefColumns: []*schema.Column{LeadsColumns[0]},
				OnDelete:   schema.NoAction,
			},
			{
				Symbol:     "deals_properties_deals",
				Columns:    []*schema.Column{column(DealsColumns, "property_id")},
				RefColumns: []*schema.Column{PropertiesColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{Name: "deal_status", Columns: []*schema.Column{column(DealsColumns, "status")}},
			{Name: "deal_lead_id", Columns: []*schema.Column{column(DealsColumns, "lead_id")}},
		},
	}

	// TasksColumns holds the columns for the "tasks" table.
	TasksColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "title", Type: field.TypeString, Size: 200},
		{Name: "description", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "type", Type: field.TypeString, Size: 30, Default: "other"},
		{Name: "priority", Type: field.TypeString, Size: 20, Default: "medium"},
		{Name: "status", Type: field.TypeString, Size: 20, Default: "pending"},
		{Name: "due_date", Type: field.TypeTime, Nullable: true},
		{Name: "completed_at", Type: field.TypeTime, Nullable: true},
		{Name: "due_notified_at", Type: field.TypeTime, Nullable: true},
		{Name: "lead_id", Type: field.TypeString, Nullable: true},
		{Name: "property_id", Type: field.TypeString, Nullable: true},
		{Name: "deal_id", Type: field.TypeString, Nullable: true},
		{Name: "assigned_to", Type: field.TypeString, Size: 64, Default: ""},
		{Name: "created_by", Type: field.TypeString, Size: 64, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// TasksTableSchema holds the schema information for the "tasks" table.
	TasksTableSchema = &schema.Table{
		Name:       TasksTable,
		Columns:    TasksColumns,
		PrimaryKey: []*schema.Column{TasksColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "tasks_leads_tasks",
				Columns:    []*schema.Column{column(TasksColumns, "lead_id")},
				RefColumns: []*schema.Column{LeadsColumns[0]},
				OnDelete:   schema.SetNull,
			},
			{
				Symbol:     "tasks_properties_tasks",
				Columns:    []*schema.Column{column(TasksColumns, "property_id")},
				RefColumns: []*schema.Column{PropertiesColumns[0]},
				OnDelete:   schema.SetNull,
			},
			{
				Symbol:     "tasks_deals_tasks",
				Columns:    []*schema.Column{column(TasksColumns, "deal_id")},
				RefColumns: []*schema.Column{DealsColumns[0]},
				OnDelete:   schema.SetNull,
			},
		},
		Indexes: []*schema.Index{
			{Name: "task_status_due_date", Columns: []*schema.Column{column(TasksColumns, "status"), column(TasksColumns, "due_date")}},
			{Name: "task_assigned_to", Columns: []*schema.Column{column(TasksColumns, "assigned_to")}},
		},
	}

	// ActivitiesColumns holds the columns for the "activities" table.
	ActivitiesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "type", Type: field.TypeString, Size: 50},
		{Name: "description", Type: field.TypeString, Size: textSize},
		{Name: "lead_id", Type: field.TypeString, Nullable: true},
		{Name: "property_id", Type: field.TypeString, Nullable: true},
		{Name: "deal_id", Type: field.TypeString, Nullable: true},
		{Name: "user_id", Type: field.TypeString, Size: 64, Default: ""},
		{Name: "metadata", Type: field.TypeJSON, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
	}
	// ActivitiesTableSchema holds the schema information for the "activities" table.
	ActivitiesTableSchema = &schema.Table{
		Name:       ActivitiesTable,
		Columns:    ActivitiesColumns,
		PrimaryKey: []*schema.Column{ActivitiesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "activities_leads_activities",
				Columns:    []*schema.Column{column(ActivitiesColumns, "lead_id")},
				RefColumns: []*schema.Column{LeadsColumns[0]},
				OnDelete:   schema.SetNull,
			},
			{
				Symbol:     "activities_properties_activities",
				Columns:    []*schema.Column{column(ActivitiesColumns, "property_id")},
				RefColumns: []*schema.Column{PropertiesColumns[0]},
				OnDelete:   schema.SetNull,
			},
			{
				Symbol:     "activities_deals_activities",
				Columns:    []*schema.Column{column(ActivitiesColumns, "deal_id")},
				RefColumns: []*schema.Column{DealsColumns[0]},
				OnDelete:   schema.SetNull,
			},
		},
		Indexes: []*schema.Index{
			{Name: "activity_lead_id_created_at", Columns: []*schema.Column{column(ActivitiesColumns, "lead_id"), column(ActivitiesColumns, "created_at")}},
			{Name: "activity_deal_id_created_at", Columns: []*schema.Column{column(ActivitiesColumns, "deal_id"), column(ActivitiesColumns, "created_at")}},
		},
	}

	// NotificationsColumns holds the columns for the "notifications" table.
	NotificationsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "user_id", Type: field.TypeString, Size: 64},
		{Name: "type", Type: field.TypeString, Size: 50},
		{Name: "title", Type: field.TypeString, Size: 255},
		{Name: "message", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "is_read", Type: field.TypeBool, Default: false},
		{Name: "read_at", Type: field.TypeTime, Nullable: true},
		{Name: "action_url", Type: field.TypeString, Size: 500, Default: ""},
		{Name: "metadata", Type: field.TypeJSON, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
	}
	// NotificationsTableSchema holds the schema information for the "notifications" table.
	NotificationsTableSchema = &schema.Table{
		Name:       NotificationsTable,
		Columns:    NotificationsColumns,
		PrimaryKey: []*schema.Column{NotificationsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "notification_user_id_is_read", Columns: []*schema.Column{column(NotificationsColumns, "user_id"), column(NotificationsColumns, "is_read")}},
			{Name: "notification_user_id_created_at", Columns: []*schema.Column{column(NotificationsColumns, "user_id"), column(NotificationsColumns, "created_at")}},
		},
	}

	// MatchesColumns holds the columns for the "lead_property_matches" table.
	MatchesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "lead_id", Type: field.TypeString},
		{Name: "property_id", Type: field.TypeString},
		{Name: "match_score", Type: field.TypeInt, Default: 0},
		{Name: "reasons", Type: field.TypeJSON, Nullable: true},
		{Name: "status", Type: field.TypeString, Size: 20, Default: "suggested"},
		{Name: "created_at", Type: field.TypeTime},
	}
	// MatchesTableSchema holds the schema information for the "lead_property_matches" table.
	MatchesTableSchema = &schema.Table{
		Name:       MatchesTable,
		Columns:    MatchesColumns,
		PrimaryKey: []*schema.Column{MatchesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "lead_property_matches_leads_matches",
				Columns:    []*schema.Column{column(MatchesColumns, "lead_id")},
				RefColumns: []*schema.Column{LeadsColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "lead_property_matches_properties_matches",
				Columns:    []*schema.Column{column(MatchesColumns, "property_id")},
				RefColumns: []*schema.Column{PropertiesColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "match_lead_id_property_id", Unique: true, Columns: []*schema.Column{column(MatchesColumns, "lead_id"), column(MatchesColumns, "property_id")}},
			{Name: "match_lead_id_match_score", Columns: []*schema.Column{column(MatchesColumns, "lead_id"), column(MatchesColumns, "match_score")}},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		LeadsTableSchema,
		PropertiesTableSchema,
		DealsTableSchema,
		TasksTableSchema,
		ActivitiesTableSchema,
		NotificationsTableSchema,
		MatchesTableSchema,
	}
)

func init() {
	DealsTableSchema.ForeignKeys[0].RefTable = LeadsTableSchema
	DealsTableSchema.ForeignKeys[1].RefTable = PropertiesTableSchema
	TasksTableSchema.ForeignKeys[0].RefTable = LeadsTableSchema
	TasksTableSchema.ForeignKeys[1].RefTable = PropertiesTableSchema
	TasksTableSchema.ForeignKeys[2].RefTable = DealsTableSchema
	ActivitiesTableSchema.ForeignKeys[0].RefTable = LeadsTableSchema
	ActivitiesTableSchema.ForeignKeys[1].RefTable = PropertiesTableSchema
	ActivitiesTableSchema.ForeignKeys[2].RefTable = DealsTableSchema
	MatchesTableSchema.ForeignKeys[0].RefTable = LeadsTableSchema
	MatchesTableSchema.ForeignKeys[1].RefTable = PropertiesTableSchema
}

// column looks up a column by name. It panics on unknown names since the
// schema is static.
func column(cols []*schema.Column, name string) *schema.Column {
	for _, c := range cols {
		if c.Name == name {
			return c
		}
	}
	panic(fmt.Sprintf("database: unknown column %q", name))
}

// Migrate creates or updates all tables
func (c *Client) Migrate(ctx context.Context) error {
	migrate, err := schema.NewMigrate(c.Driver)
	if err != nil {
		return fmt.Errorf("failed creating migrator: %w", err)
	}
	if err := migrate.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("failed creating schema resources: %w", err)
	}
	return nil
}
