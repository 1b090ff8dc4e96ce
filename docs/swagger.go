// Package docs BlogPulse API
//
// @title  BlogPulse API
// @version 0.1.0
// @description Blog posts, comments and cookie sessions.
// @host      localhost:6000
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey Session
// @in cookie
// @name sessionID
package docs
