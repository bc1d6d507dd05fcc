// ABOUTME: Audio to tracker conversion pipeline
// ABOUTME: Decodes audio and builds IT modules or UMX packages from it
// Package convert turns an encoded audio file into an Impulse Tracker
// module, optionally wrapped in an Unreal package as a Music object.
//
// A Converter holds only its collaborators (decoder, random source,
// progress callback, logger). Every call takes its own Config, so one
// Converter can serve concurrent conversions.
//
// Example:
//
//	c := convert.New()
//	cfg := convert.DefaultConfig()
//	cfg.Name = "TitleTheme"
//	out, err := c.Convert(ctx, mp3Bytes, cfg)
//	// out.Filename == "TitleTheme.umx"
package convert
