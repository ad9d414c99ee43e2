package ledger

// Hooks for the external test package.
var RevertReason = revertReason

const StoreABIJSON = storeABIJSON
