// Package imaging implements the leaf image filtering and scoring stages.
//
// Every stage is a pure function from one immutable grid to a new one:
//
//	encoded bytes / data URI
//	    -> Codec.Decode   -> PixelGrid   (RGBA, 8 bits per channel)
//	    -> ToLuma         -> LumaGrid    (BT.601 luma, float)
//	    -> Gradient       -> GradientGrid (Sobel magnitude)
//	         -> RenderEdges -> PixelGrid (edge map)
//	         -> EdgeScore   -> Score
//	    -> Colorize       -> PixelGrid   (thermogram)
//	    -> BrightnessScore -> Score
//
// # Coordinate System
//
// Grids are row-major with (0,0) at the top-left corner, X increasing
// rightward and Y increasing downward. The value for (x, y) lives at index
// y*Width+x (times 4 for RGBA samples).
//
// # Thread Safety
//
// Stages hold no state and never mutate their input, so grids can be shared
// read-only between goroutines. Row loops are spread across GOMAXPROCS
// workers with bild's parallel package; each worker owns a disjoint band of
// output rows. StdCodec is safe for concurrent use.
//
// # Error Handling
//
// Only the codec boundary can fail. Decode reports every failure (empty
// input, unknown or corrupt raster, malformed data URI) as *DecodeError and
// never substitutes a blank image. All other stages are total over any
// well-formed grid, including 1x1 and very thin images.
//
// # Scores
//
// Both scores are in [0, 100]. EdgeScoreGain (400) and the five thermogram
// stops are empirical display constants; they are kept fixed because
// changing them changes user-visible output.
package imaging
