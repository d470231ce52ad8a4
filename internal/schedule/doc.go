// Package schedule decides when recurring care tasks fall due. It answers
// three questions for a task definition: is a given calendar day an
// occurrence, when is the next occurrence, and how urgent is the task right
// now. It also scans completion history for the earliest missed occurrence.
//
// Everything here is a pure function of its inputs except the gap scan, which
// reads completions through the CompletionSource interface. All calendar
// arithmetic happens in a single facility time zone.
package schedule
