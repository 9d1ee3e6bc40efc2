// Package sourcing builds the concrete fallback ladders the pipeline runs:
// background visuals, background music, subtitle burn-in and the voice and
// music mix.
//
// Every ladder ends in a rung that cannot depend on a network provider, so
// a job only loses a stage when the media engine itself is broken.
package sourcing
