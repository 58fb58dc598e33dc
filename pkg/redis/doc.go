// Package redis connects to Redis for the notification idempotency guard.
//
//	client, err := redis.Connect(ctx, config.MustLoad[redis.Config]())
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// Connect retries the initial ping; Healthcheck is meant for /readyz.
// Errors wrap the go-redis cause with errors.Join, so errors.Is works on the
// sentinels below.
package redis
