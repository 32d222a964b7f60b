// Package pipeline provides a framework for executing run steps in sequence.
//
// A run passes through the same stages every time: scraping the result
// pages, scoring sentiment, scoring emotions, writing the output files and
// optionally storing the run. Each stage is implemented as a Step that
// receives the current run and can modify it.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. It allows easy addition/removal of steps (optional outputs) without
// modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context between stages
package pipeline
