// Package segment splits one recording into fixed-duration mono chunks.
//
// Plan is the pure part: it turns a sample count into contiguous,
// non-overlapping bounds covering the whole recording, the last one clamped to
// the available samples. Segmenter.Split loads the recording at 44.1 kHz,
// downmixes it to mono and writes one WAV per planned chunk. A recording that
// cannot be loaded yields no segments at all, which the orchestrator treats as
// fatal for that run.
package segment
