/*
	Package exr reads and writes single-part scanline OpenEXR files, the multi-channel
	floating-point container the renderer writes for depth, label, normal and flow
	passes.

	Only what the ground-truth pipeline needs is supported: UINT, HALF and FLOAT
	channels, and NONE, RLE, ZIPS and ZIP compression on read (NONE and ZIP on write).
	Tiled, deep and multi-part files are rejected with a gt.DecodeError.

	Channel samples are returned top row first; pixel (row, col) of a channel is the
	data-window coordinate (XMin+col, YMin+row).
*/
package exr
