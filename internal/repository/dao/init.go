package dao

import "gorm.io/gorm"

func InitTables(db *gorm.DB) error {
	err := db.AutoMigrate(
		&Campaign{},
		&CampaignUpdate{},
		&Donation{},
		&EmailTemplate{},
		&EmailLog{},
	)
	if err != nil {
		return err
	}

	// At most one campaign may be active at a time. AutoMigrate cannot
	// express a partial unique index, so it is created here.
	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS uidx_campaigns_single_active
		 ON campaigns (is_active) WHERE is_active`,
	).Error
}
