package main

import "clientx/internal/app"

// @title           ClientX API
// @version         1.0
// @description     Role-based task tracking with assignment resolution and notification fan-out.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	app.Run()
}
