// Package timing divides a total duration into contiguous windows.
//
// Every allocator returns windows that start at zero, never overlap, never
// leave gaps, and end exactly at the requested total: the last window absorbs
// floating point drift. Clip and image counts and the Ken Burns zoom curve
// live here too so every stage sizes its visuals from one place.
package timing
