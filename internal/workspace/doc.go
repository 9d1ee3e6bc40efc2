// Package workspace owns the on-disk layout of a production job.
//
// Every job writes beneath one output directory:
//
//	audio/                      narration audio
//	logs/<id>.log               per-job log
//	video/                      background and subtitled video
//	video/final/<id>-final.mp4  the published result
//	subtitles/                  ASS documents and caption tracks
//	.temp/<id>/                 scratch, removed when the job ends
//	.locks/<id>.lock            advisory lock held while the job runs
//
// The lock keeps two processes from producing the same job ID into the same
// tree. Jobs with different IDs never contend.
package workspace
