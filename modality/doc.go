/*
	Package modality reads the raw per-frame files of each ground-truth modality into
	their in-memory fields and computes per-modality validity masks.

	Channel conventions of the raw files:

		depth   R            float32 distance along the view ray
		label   R            int32 identifier, 0 is background
		normal  R, G, B      float32 (x, y, z)
		flow    R, G, B, A   float32 backward (u, v), forward (u, v) stored negated
		image   PNG          8-bit RGB

	ReadFlow negates the stored forward channels, so every FlowField carries forward
	flow in its true direction.
*/
package modality
