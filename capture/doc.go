/*
	Package capture drives the per-frame ground-truth pipeline.

	A host renderer reaches the pipeline through three lifecycle calls on a Session:

		s, err := capture.Begin(host, cfg)   // capture begin: enable passes, add output nodes
		...
		s.FrameCaptured(frame)               // raw files of the frame are on disk
		...
		s.End()                              // capture end: remove nodes, restore settings

	The Session owns the render settings that were in effect before Begin and the
	node handles it created, so End restores the host even if a frame failed.  Run
	wraps the three calls for hosts that render frames on request.

	Scan and Pack process frames that were rendered earlier and are already on disk.
*/
package capture
