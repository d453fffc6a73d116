package api

// MaxUploadSize limits cover and avatar upload bodies.
const MaxUploadSize = 10 << 20 // 10 MB
