// Package separation wraps the demucs source-separation CLI.
//
// Each configured model runs independently against the whole input and
// writes its stems under <base>/<model>/. A model that fails or times out is
// logged and reported in its Outcome; it never stops the models after it.
// Models may run with bounded parallelism; outcomes always come back in the
// order the models were given.
package separation
