/*
	Package colorize turns ground-truth fields into RGB visualizations.

	Normals map x and y from [-1,1] to [0,1] and use z directly; pixels without a
	surface are mid-gray.  Flow is drawn in HSV with direction as hue and globally
	normalized speed as saturation; pixels without motion are mid-gray.  Depth and
	labels use a viridis ramp over valid values only, with invalid pixels painted
	BadColor.
*/
package colorize
