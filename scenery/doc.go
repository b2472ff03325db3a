// Package scenery converts v2 scenery files into the v3 XML form.
//
// A v2 scenery file is a list of linked child sceneries (each with a
// displacement and an Euler rotation) followed by its own drawable
// elements. Conversion is recursive: every linked child is converted
// first, its displacement is rotated through the child link's Euler
// angles (order Z, then Y, then X - active rotation), and the whole
// composition is re-centered on the midpoint of the children's outer
// envelopes. The drawable elements are split off into a companion
// elements file that joins the composition as one more link.
//
// A conversion requested with the no-displacement flag (used for signal
// frames, which must keep their authored origin) is cached on disk: the
// output name gains an ".nd" segment, and a later request for the same
// file only re-reads the existing output and reports the largest bounding
// radius among its links. That is not the enclosing radius a fresh
// conversion reports, so the two differ whenever the file has links.
//
// Key entry point:
//
//   - Converter.Convert(name, noDisplacement) - converts one file and
//     everything it links, returning the Link parameters the parent
//     needs to place it.
//
// Errors:
//
//   - ErrCycle - a scenery file links back into a file whose conversion
//     is still in progress.
package scenery
