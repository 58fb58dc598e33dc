// Package mongo connects to MongoDB using environment-driven settings.
//
// The lead store and the notification attempt log both live in the database
// returned by NewWithDatabase. Change streams, used to react to new leads,
// require a replica set or sharded cluster; a standalone server accepts
// writes but cannot be watched.
//
//	cfg := config.MustLoad[mongo.Config]()
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer db.Client().Disconnect(context.Background())
//
// Healthcheck plugs into the /readyz handler.
package mongo
