package migration

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/creditdash/internal/config"
	customerdomain "github.com/smallbiznis/creditdash/internal/customer/domain"
	referencedomain "github.com/smallbiznis/creditdash/internal/reference/domain"
	"github.com/smallbiznis/creditdash/internal/seed"
	settingsdomain "github.com/smallbiznis/creditdash/internal/settings/domain"
	usagedomain "github.com/smallbiznis/creditdash/internal/usage/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, node *snowflake.Node) error {
		if strings.EqualFold(cfg.DBType, "postgres") {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// mysql and sqlite rely on gorm's schema sync
			if err := conn.AutoMigrate(
				&customerdomain.Customer{},
				&usagedomain.UsageRecord{},
				&settingsdomain.Setting{},
				&referencedomain.Plan{},
			); err != nil {
				return err
			}
		}

		if err := seed.EnsurePlans(conn, node); err != nil {
			return err
		}
		if cfg.SeedDemoData {
			return seed.EnsureDemoCustomers(conn, node)
		}
		return nil
	}),
)
