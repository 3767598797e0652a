// Package commands defines the tripctl operator CLI.
//
// Commands
//
//   - migrate            Apply the database schema
//   - trip create        Create a trip with its organizer
//   - trip add-member    Add a user to a trip
//   - balances           Print member balances of a trip
//   - plan               Print proposed settlement transfers
//
// The root command loads configuration from the environment (and .env)
// and wires the same stores and services the API uses before any
// subcommand runs. Operators act outside trip membership checks.
package commands
