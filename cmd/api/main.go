package main

import "microloan-backend/internal/cli"

func main() { cli.Execute() }
