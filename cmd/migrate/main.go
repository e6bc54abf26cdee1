// Command migrate applies or rolls back the relational schema.
//
//	migrate up          apply every pending migration
//	migrate down        roll back the last applied migration
//	migrate to <id>     migrate forward to id, or roll back to it if applied
//	migrate list        print every migration and whether it is applied
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tienbob/Tubex-sub003/internal/migration"
	"github.com/tienbob/Tubex-sub003/pkg/config"
	"github.com/tienbob/Tubex-sub003/pkg/database"
	"github.com/tienbob/Tubex-sub003/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const serviceName = "tubex-migrate"

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-dsn DSN] up|down|to <id>|list\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	dsn := flag.String("dsn", "", "database DSN, overrides DB_* environment variables")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	appConfig, err := config.Load(serviceName)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       appConfig.Log.Level,
		Environment: appConfig.Server.Env,
		ServiceName: serviceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	if *dsn == "" {
		*dsn = appConfig.DB.GetDSN()
	}
	db, err := database.Open(*dsn, &appConfig.DB, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	if err := run(db, flag.Args(), log); err != nil {
		log.Error("Migration failed", zap.Error(err))
		database.Close(db)
		os.Exit(1)
	}
}

func run(db *gorm.DB, args []string, log *zap.Logger) error {
	m := migration.New(db)
	switch args[0] {
	case "up":
		if err := m.Migrate(); err != nil {
			return err
		}
		log.Info("Schema is up to date")
	case "down":
		if err := m.RollbackLast(); err != nil {
			return err
		}
		log.Info("Rolled back last migration")
	case "to":
		if len(args) != 2 {
			return fmt.Errorf("to requires a migration id")
		}
		return migrateTo(db, args[1], log)
	case "list":
		applied, err := appliedIDs(db)
		if err != nil {
			return err
		}
		for _, mig := range migration.Migrations() {
			state := "pending"
			if applied[mig.ID] {
				state = "applied"
			}
			fmt.Printf("%-45s %s\n", mig.ID, state)
		}
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}

// migrateTo moves the schema to id in whichever direction is needed.
func migrateTo(db *gorm.DB, id string, log *zap.Logger) error {
	known := false
	for _, mig := range migration.Migrations() {
		if mig.ID == id {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown migration %q", id)
	}

	applied, err := appliedIDs(db)
	if err != nil {
		return err
	}
	m := migration.New(db)
	if applied[id] {
		if err := m.RollbackTo(id); err != nil {
			return err
		}
		log.Info("Rolled back to migration", zap.String("id", id))
		return nil
	}
	if err := m.MigrateTo(id); err != nil {
		return err
	}
	log.Info("Migrated to", zap.String("id", id))
	return nil
}

func appliedIDs(db *gorm.DB) (map[string]bool, error) {
	applied := map[string]bool{}
	if !db.Migrator().HasTable(migration.TableName) {
		return applied, nil
	}
	var ids []string
	if err := db.Table(migration.TableName).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("read %s: %w", migration.TableName, err)
	}
	for _, id := range ids {
		applied[id] = true
	}
	return applied, nil
}
