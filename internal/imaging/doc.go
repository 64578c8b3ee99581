// Package imaging provides the raster side of object detection analysis.
//
// It decodes input images (files, base64 payloads, and camera data URLs),
// summarizes their dimensions, draws detection overlays, crops detected
// objects, and encodes results for display or export. All operations work
// with standard Go image.Image types.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with the origin at the top-left corner:
//   - X: horizontal position (0 = leftmost pixel), increasing rightward
//   - Y: vertical position (0 = topmost pixel), increasing downward
//
// Detection boxes use the same system and may extend past the image edges.
//
// # Overlays
//
// Render copies the base image and draws, per detection, an outlined box and
// a filled tag carrying "label (NN.NN%)". The source image is never modified,
// so the same Descriptor can be rendered again with a different style.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. All other functions are
// stateless and can be called concurrently.
//
// # Error Handling
//
// Degenerate dimensions are reported as *InvalidImageError by Summarize.
// Decoding and encoding failures are returned wrapped with context.
package imaging
