package main

import "github.com/frahmantamala/paypal-enrolment/cmd"

func main() {
	cmd.Execute()
}
