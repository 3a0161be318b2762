// Package analysis orchestrates the leaf image pipeline.
//
// An Analyzer decodes an upload once, derives one luma grid, and fans out
// into the edge-detection branch and the thermogram branch, optionally next
// to a Classifier (the language-model collaborator). The branches are joined
// with an errgroup; a cancelled context discards everything and Analyze
// returns no result rather than a partial one.
//
// Typical use:
//
//	a := analysis.New(analysis.WithOptions(analysis.Options{
//	    Format:    imaging.FormatPNG,
//	    EdgeStyle: imaging.EdgeStyleDark,
//	}))
//	res, err := a.Analyze(ctx, upload)
//	if imaging.IsDecodeError(err) {
//	    // ask the user for a valid image
//	}
package analysis
