// Package logger builds *slog.Logger instances for notifystream components
// and keeps attribute names consistent across them.
//
// New applies Option values (format, level, environment preset, static
// attributes, context extractors). Attributes stored in a context with
// WithAttrs are added to every record logged with that context, which is how
// a push connection tags all of its records with its endpoint and sequence
// number.
//
//	log := logger.New(
//	    logger.WithEnvironment(os.Getenv("APP_ENV"), "notifytail"),
//	    logger.WithLevelName(os.Getenv("LOG_LEVEL")),
//	)
//	ctx = logger.WithAttrs(ctx, logger.Endpoint(url))
//	log.WarnContext(ctx, "skipping malformed notification",
//	    logger.EventID(ev.ID),
//	    logger.Error(err),
//	)
//
// Error and Errors return an empty attribute for nil errors, so they can be
// passed unconditionally.
package logger
