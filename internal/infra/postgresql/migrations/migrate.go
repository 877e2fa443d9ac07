package migrations

import (
	"github.com/Atuoha/Ghost/internal/repository"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_posts",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&repository.PostModel{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.PostModel{})
			},
		},
		{
			ID: "000002_create_members",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.MemberModel{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE UNIQUE INDEX IF NOT EXISTS idx_members_uuid ON members (uuid)`,
					`CREATE UNIQUE INDEX IF NOT EXISTS idx_members_email ON members (email)`,
					`CREATE INDEX IF NOT EXISTS idx_members_subscribed_status ON members (subscribed, status)`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.MemberModel{})
			},
		},
		{
			ID: "000003_create_emails",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.EmailModel{}); err != nil {
					return err
				}
				indexes := []string{
					// One dispatch record per post, enforced at the storage layer.
					`CREATE UNIQUE INDEX IF NOT EXISTS idx_emails_post_id ON emails (post_id)`,
					`CREATE INDEX IF NOT EXISTS idx_emails_status_created ON emails (status, created_at)`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.EmailModel{})
			},
		},
		{
			ID: "000004_create_email_batches",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.EmailBatchModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_email_batches_email_id ON email_batches (email_id)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.EmailBatchModel{})
			},
		},
		{
			ID: "000005_create_email_recipients",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.EmailRecipientModel{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE INDEX IF NOT EXISTS idx_email_recipients_email_id ON email_recipients (email_id)`,
					`CREATE INDEX IF NOT EXISTS idx_email_recipients_batch_id ON email_recipients (batch_id)`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.EmailRecipientModel{})
			},
		},
	})

	return m.Migrate()
}
