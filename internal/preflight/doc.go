// Package preflight provides readiness checks for the filesystem paths and
// external tools vocalprep depends on.
//
// These checks run in two contexts:
//   - The batch driver calls RunAll before discovering inputs. A failed
//     directory or free-space check stops the batch before any model runs.
//   - The CLI "vocalprep doctor" command uses the individual check functions
//     together with CheckSystemDeps to display an overall health table.
package preflight
