// Package api defines the request/response types for the SkillSync HTTP API.
//
// # API Overview
//
// SkillSync provides a RESTful API for:
//   - User, skill, assessment and learning-path management
//   - AI skill assessment and career guidance (xAI Grok)
//   - Multi-agent swarm career analysis
//   - Career DNA profiles with a consent-gated privacy vault
//   - Multi-platform job search with affiliate revenue tracking
//
// # Authentication
//
// DNA endpoints require a Bearer JWT; the remaining endpoints are open
// and protected by per-IP rate limiting.
//
// # Base URL
//
// The default base URL for the API is:
//
//	http://localhost:8080
package api
