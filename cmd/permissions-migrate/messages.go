package main

const (
	starting = "starting"
	finished = "finished"

	failedToRunMigrations = "failed-to-run-migrations"
)
