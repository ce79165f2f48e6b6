package pendle

// Minimal hand-declared ABIs: only the methods the vault actually uses.

// erc20ABIJSON covers the fungible-token surface (balance, transfer legs).
const erc20ABIJSON = `[
  {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"transferFrom","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

// marketABIJSON covers the Pendle market's reward surface. redeemRewards
// pushes every accrued reward token to the user in one call.
const marketABIJSON = `[
  {"type":"function","name":"getRewardTokens","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address[]"}]},
  {"type":"function","name":"redeemRewards","stateMutability":"nonpayable","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"uint256[]"}]}
]`

// escrowABIJSON covers the vePENDLE lock pass-through.
const escrowABIJSON = `[
  {"type":"function","name":"increaseLockPosition","stateMutability":"nonpayable","inputs":[{"name":"additionalAmountToLock","type":"uint128"},{"name":"newExpiry","type":"uint128"}],"outputs":[{"name":"newVeBalance","type":"uint128"}]}
]`
