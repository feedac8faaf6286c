package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"cryptodash/internal/auth"
	"cryptodash/internal/dashboard"
	"cryptodash/internal/preferences"
)

// Connect opens the pool. Unique violations come back as
// gorm.ErrDuplicatedKey so stores can report conflicts.
func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

// constraint is added once; postgres has no "add constraint if not exists".
type constraint struct {
	table, name, def string
}

var constraints = []constraint{
	{"preferences", "fk_preferences_user", "foreign key (user_id) references users(id) on delete cascade"},
	{"dashboard_items", "fk_dashboard_items_user", "foreign key (user_id) references users(id) on delete cascade"},
	{"votes", "fk_votes_user", "foreign key (user_id) references users(id) on delete cascade"},
	{"votes", "fk_votes_dashboard_item", "foreign key (dashboard_item_id) references dashboard_items(id) on delete cascade"},
	{"votes", "ck_votes_value", "check (value in (-1, 1))"},
	{"dashboard_items", "ck_dashboard_items_type", "check (item_type in ('news', 'prices', 'ai', 'meme'))"},
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&auth.User{},
		&preferences.Preference{},
		&dashboard.Item{},
		&dashboard.Vote{},
	); err != nil {
		return err
	}

	for _, c := range constraints {
		s := fmt.Sprintf(`
do $$
begin
	if not exists (select 1 from pg_constraint where conname = '%s') then
		alter table %s add constraint %s %s;
	end if;
end $$;`, c.name, c.table, c.name, c.def)
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("constraint exec failed: %w (name=%s)", err, c.name)
		}
	}

	// Helpful indexes
	stmts := []string{
		`create index if not exists idx_dashboard_items_user_date on dashboard_items(user_id, date desc);`,
		`create index if not exists idx_votes_item_value on votes(dashboard_item_id, value);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
