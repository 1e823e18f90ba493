// Command bankdesk is a terminal bank: customers, accounts and a ledger of
// deposits, withdrawals and transfers, with an optional HTTP API and
// RabbitMQ/MongoDB entry journal.
package main

import "bankdesk/cli"

func main() {
	cli.Execute()
}
