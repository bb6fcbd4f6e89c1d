// Command rollcall runs attendance check-in stations and the shared ledger
// service.
//
//	rollcall scan --occasion ID   check people in from a barcode scanner
//	rollcall serve                run the HTTP ledger service
//	rollcall devices              list scanner devices
//	rollcall seed                 load the dev directory
//	rollcall classify PAYLOAD     show how a scanned payload is read
//	rollcall payload PERSON_ID    print the self-describing code for a person
package main
