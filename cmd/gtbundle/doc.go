/*
gtbundle packs the per-frame ground truth written by a renderer into one compressed
archive per frame.

A render writes one raw file per modality and frame into an output directory:

	image0007.png    color image (8-bit RGB)
	depth0007.exr    channel R, distance to camera
	label0007.exr    channel R, object index (0 means no object)
	normal0007.exr   channels R, G, B, surface normal
	flow0007.exr     channels R, G backward flow; B, A forward flow (sign inverted)

and gtbundle turns them into 0007.npz, a zip of .npy arrays readable by numpy.load.
Depth beyond the far sentinel is stored as -1 and forward flow is stored in its true
direction.  The raw files are removed once the archive is written.

Commands

In the following documentation, the type of brackets designate
<required parameter> and [optional parameter].

	gtbundle about

Prints the version of gtbundle and of the archive schema it writes.

	gtbundle -input=/path/to/frames check

Verifies every frame found in the directory has a raw file for every enabled modality.

	gtbundle -input=/path/to/frames pack [workers=N]

Archives every frame in the directory, running up to N frames at once (default: the
-numcpu setting).  The first failing frame stops the run and is reported with its
frame number and modality; frames already archived are kept.

	gtbundle -input=/path/to/frames view <frame> [output dir]

Writes color visualizations of a frame's raw files: view_depth0007.png,
view_normal0007.png, view_flow_forward0007.png and so on.

	gtbundle inspect <archive>

Lists the arrays of an archive with their types and shapes.

	gtbundle -input=/path/to/frames demo [frames=N] [size=WxH]

Captures N frames of a synthetic scene through the same session used for a live
renderer, leaving archives in the directory.

Configuration

A TOML file given with -config selects modalities, the far sentinel, archive
compression and logging.  See package config for an example.
*/
package main
