/*
Package ledger validates transactions against a pool of unspent transaction
outputs and admits batches of them one epoch at a time.

A transaction is valid against a pool when every input resolves to an unspent
output, every input signature unlocks the output it spends, no output is
claimed twice, no output value is negative and the inputs cover the outputs.
The difference between input and output totals is the fee.

An epoch takes an unordered batch of candidates, orders it with a Strategy
against the pool as it stood when the epoch began and then walks the ordered
list once.  Each candidate is re-validated against the pool as already changed
by the candidates admitted before it, so no two admitted transactions spend
the same output.  The changes are collected in a UtxoDiff and applied to the
committed pool only once the whole batch has been processed.

The MaxFee strategy admits greedily by descending fee.  Picking the fee
maximizing conflict-free subset is the maximum weight independent set problem
on the conflict graph, so the greedy result is not always optimal.
*/
package ledger
