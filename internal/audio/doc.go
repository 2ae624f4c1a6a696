// Package audio holds the sample-level plumbing around the synthesis engine:
// float to 16-bit PCM conversion, silence trimming, WAV output, the ffmpeg
// encoder subprocess and oto/v3 playback.
package audio
