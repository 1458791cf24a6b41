/*
	Package gt provides types, constants and functions that have no other dependencies
	and can be used by all packages within gtbundle: per-modality field types, frame
	file naming, the error taxonomy shared by readers and writers, and logging.

	Pixel order is row-major with row 0 at the top of the image for every modality.
	EXR data windows and PNG rasters are both stored top-down, so pixel (row, col)
	refers to the same scene location across image, depth, label, normal and flow
	fields of one frame.
*/
package gt
