package main

import "github.com/onboardbase/securelog/cmd/securelog"

func main() { securelog.Execute() }
