// Package gcode parses, traces and re-emits slicer G-code.
//
// # Overview
//
// A file is read into a [Program]: one [Instruction] per source line, split
// into an immutable header (start G-code), a transformable body and an
// immutable footer (end G-code). Linear moves (G0/G1) are interpreted and
// transformed. Arcs (G2/G3) are traced to their end point and their E is
// kept in step with the moves around them, but their geometry is never
// changed. Firmware macros and M-codes pass through untouched.
//
// # Round Trip
//
// Instructions remember their source text. [Emit] writes untouched lines
// byte-for-byte, including "\r\n" terminators and the presence or absence of
// a final newline, so parsing and emitting without transformation
// reproduces the input exactly. Changed lines are re-formatted with the
// number style learned from the input (see [Format]).
//
// # Tracing
//
// [Trace] annotates every move with its start and end position and the
// filament it deposits, following G90/G91, M82/M83 and G92. Transformers
// change deposits with [Instruction.SetDeposit]; in absolute extrusion mode
// [Rebase] then rewrites every later E value so the filament fed per move
// is preserved.
//
// # Dialects
//
// Layer boundaries, print heights and feature names come from slicer
// comments. [DetectDialect] recognises the Bambu/Orca family ("; FEATURE:",
// "; CHANGE_LAYER", "; Z_HEIGHT:") and the Prusa family (";TYPE:",
// ";LAYER_CHANGE", ";Z:"). Files with neither are handled as generic G-code.
package gcode
