/*
	Package archive persists the ground truth of one frame as a compressed NPZ file
	(a zip of NumPy .npy arrays) named NNNN.npz after the frame number.

	Keys and layouts, all C order, little endian:

		image      uint8    (H, W, 3)
		depth      float32  (H, W)      samples at or beyond the far sentinel stored as -1
		label      int32    (H, W)      optional, 0 is background
		normal     float32  (H, W, 3)   optional, (x, y, z)
		flow       float32  (H, W, 4)   optional, (backward u, backward v, forward u, forward v)
		intrinsic  float64  (3, 3)      optional camera matrix
		extrinsic  float64  (4, 4)      optional camera-to-world matrix

	The camera keys are present only when the frame was captured from a live host
	that reports its camera; archives packed from files already on disk have neither
	key rather than a null placeholder.

	Flow sign convention: the renderer stores forward flow negated.  It is inverted
	when read, so the forward channels in an archive point from a pixel to its
	position in the next frame, and the backward channels to its position in the
	previous frame.

	Archives are written to a temporary file in the output directory and renamed
	into place with mode 0644, so a reader never sees a partial archive.
*/
package archive
