package xhs

import "errors"

// Step errors identify which protocol step failed. The client performs no
// retry or backoff on any of them; callers decide policy. Use errors.Is to
// classify a returned error against these sentinels.
var (
	ErrPermit          = errors.New("xhs: upload permit rejected")
	ErrUpload          = errors.New("xhs: binary upload failed")
	ErrPayloadTooLarge = errors.New("xhs: payload exceeds size ceiling")
	ErrCreateNote      = errors.New("xhs: note creation request failed")
	ErrListing         = errors.New("xhs: listing request failed")
	ErrDetail          = errors.New("xhs: note detail request failed")
	ErrDelete          = errors.New("xhs: note delete failed")
	ErrSearch          = errors.New("xhs: search request failed")
	ErrProbe           = errors.New("xhs: identity probe failed")
)
