// Package services contains the application services behind the transport
// layer. Services join persisted signal history with company identities and
// present them as leads; handlers stay thin and services own the business
// view of the data.
package services
