/*
Dposd is a delegated proof of stake node: it keeps the chain of blocks, the
account ledger derived from it and a pool of unconfirmed transactions, and
forges blocks in the slots owned by the delegates it holds secrets for.

Usage:

	dposd [OPTIONS]

For an up-to-date help message:

	dposd --help

The long form of all option flags (except -C) can be specified in a
configuration file that is automatically parsed when dposd starts up. By
default, the configuration file is located at ~/.dposd/dposd.conf on
POSIX-style operating systems and %LOCALAPPDATA%\Dposd\dposd.conf on Windows.
The -C (--configfile) flag can be used to override this location.
*/
package main
