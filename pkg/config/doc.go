// Package config loads typed configuration from the environment.
//
// Structs describe their variables with caarlos0/env tags and every
// package that needs configuration exposes its own Config type with a
// NewFromConfig constructor. Load returns a fresh value on every call;
// the caller owns it and passes it on explicitly.
//
//	cfg, err := config.Load[pushchannel.Config]()
//	if err != nil {
//		return err
//	}
//	ch := pushchannel.NewFromConfig[notifications.Notification](cfg, transport)
package config
