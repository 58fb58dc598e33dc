// Package logger builds the service's *slog.Logger and keeps attribute names
// consistent across packages.
//
// New applies functional options (format, level, static attributes, context
// extractors) and wraps the chosen slog handler with LogHandlerDecorator, which
// pulls request-scoped values out of the context on every record.
//
//	log := logger.New(logger.WithEnvironment("production", "leadmail"))
//	log.InfoContext(ctx, "notification sent",
//	    logger.LeadID(l.ID),
//	    logger.RecipientRole("client"),
//	    logger.MessageID(receipt.MessageID),
//	)
//
// Attribute helpers that take optional values (Error, MessageID) return an
// empty slog.Attr for zero input, which slog omits from the output.
package logger
